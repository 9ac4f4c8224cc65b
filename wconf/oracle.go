package wconf

import (
	"context"

	"go.viam.com/tamp/world"
)

// ClearanceOracle treats a goal as reachable when the object, placed at the goal pose in the given
// configuration, is clear of every obstacle by at least MinDistance.
type ClearanceOracle struct {
	World       world.World
	Obstacles   []world.BodyRef
	MinDistance float64
}

// TestReachable implements ReachabilityOracle.
func (o *ClearanceOracle) TestReachable(ctx context.Context, goal ReachGoal, w *WConf) (bool, error) {
	if err := w.Assign(o.World); err != nil {
		return false, err
	}
	if err := goal.Pose.Assign(o.World); err != nil {
		return false, err
	}
	for _, obstacle := range o.Obstacles {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if obstacle.Body() == goal.Object {
			continue
		}
		collides, err := o.World.Collides(goal.Object, obstacle, o.MinDistance)
		if err != nil {
			return false, err
		}
		if collides {
			return false, nil
		}
	}
	return true, nil
}
