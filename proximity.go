// Package proximity answers narrow-phase geometric queries, discrete
// collision, minimum distance, and continuous collision by conservative
// advancement, between triangle meshes preprocessed into bounding-volume
// hierarchies.
package proximity

import (
	"github.com/edaniels/golog"

	"go.viam.com/proximity/mesh"
	"go.viam.com/proximity/motion"
	"go.viam.com/proximity/spatial"
	"go.viam.com/proximity/traverse"
)

// Engine is the query entry point. It is stateless apart from its logger and
// safe for concurrent use; each query builds its own traversal state.
type Engine struct {
	logger golog.Logger
}

// NewEngine returns an engine that reports per-query traversal statistics at
// debug level when requests ask for them.
func NewEngine(logger golog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Collide tests the two posed models for intersection, recording contacts
// and cost sources per the request.
func (e *Engine) Collide(
	m1 *mesh.Model, tf1 spatial.Transform,
	m2 *mesh.Model, tf2 spatial.Transform,
	req *traverse.CollisionRequest,
) (*traverse.CollisionResult, error) {
	var res traverse.CollisionResult
	node, err := traverse.NewCollisionTraversal(m1, tf1, m2, tf2, req, &res)
	if err != nil {
		return nil, err
	}
	traverse.Collide(node)
	if req.EnableStatistics {
		e.logger.Debugw("collision query finished",
			"collide", res.IsCollision(),
			"bv_tests", node.Stats().BVTests,
			"leaf_tests", node.Stats().LeafTests,
		)
	}
	return &res, nil
}

// Distance computes the minimum separation distance between the two posed
// models, with nearest points when requested. A QueueSize above two switches
// to best-first traversal.
func (e *Engine) Distance(
	m1 *mesh.Model, tf1 spatial.Transform,
	m2 *mesh.Model, tf2 spatial.Transform,
	req *traverse.DistanceRequest,
) (*traverse.DistanceResult, error) {
	res := traverse.NewDistanceResult()
	node, err := traverse.NewDistanceTraversal(m1, tf1, m2, tf2, req, &res)
	if err != nil {
		return nil, err
	}
	if req.QueueSize > 2 {
		traverse.DistanceBestFirst(node, req.QueueSize)
	} else {
		traverse.Distance(node)
	}
	if req.EnableStatistics {
		e.logger.Debugw("distance query finished",
			"distance", res.Distance,
			"bv_tests", node.Stats().BVTests,
			"leaf_tests", node.Stats().LeafTests,
		)
	}
	return &res, nil
}

// ConservativeAdvance runs a continuous-collision query over the unit motion
// interval of both models.
func (e *Engine) ConservativeAdvance(
	m1 *mesh.Model, motion1 motion.Motion,
	m2 *mesh.Model, motion2 motion.Motion,
	req *traverse.CCDRequest,
) (traverse.CCDResult, error) {
	res, err := traverse.ConservativeAdvance(m1, motion1, m2, motion2, req)
	if err != nil {
		return traverse.CCDResult{}, err
	}
	if req.EnableStatistics {
		e.logger.Debugw("continuous collision query finished",
			"collide", res.Collide,
			"toc", res.TOC,
			"bv_tests", res.Stats.BVTests,
			"leaf_tests", res.Stats.LeafTests,
		)
	}
	return res, nil
}
