package inject

import (
	"context"

	"go.viam.com/tamp/wconf"
)

// ReachabilityOracle is an injected reachability oracle.
type ReachabilityOracle struct {
	wconf.ReachabilityOracle
	TestReachableFunc func(ctx context.Context, goal wconf.ReachGoal, w *wconf.WConf) (bool, error)
}

// TestReachable calls the injected TestReachable or the real version.
func (o *ReachabilityOracle) TestReachable(ctx context.Context, goal wconf.ReachGoal, w *wconf.WConf) (bool, error) {
	if o.TestReachableFunc == nil {
		return o.ReachabilityOracle.TestReachable(ctx, goal, w)
	}
	return o.TestReachableFunc(ctx, goal, w)
}
