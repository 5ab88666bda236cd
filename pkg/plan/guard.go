package plan

import (
	"maps"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/ports"
)

// interceptors holds the intents that pre-empt plan progression.
type interceptors struct {
	exit            map[string]string
	chitchat        map[string]string
	exitActions     map[string]struct{}
	chitchatActions map[string]struct{}
}

func newInterceptors(exit, chitchat map[string]string) interceptors {
	g := interceptors{
		exit:            maps.Clone(exit),
		chitchat:        maps.Clone(chitchat),
		exitActions:     make(map[string]struct{}, len(exit)),
		chitchatActions: make(map[string]struct{}, len(chitchat)),
	}
	if g.exit == nil {
		g.exit = map[string]string{}
	}
	if g.chitchat == nil {
		g.chitchat = map[string]string{}
	}
	for _, action := range exit {
		g.exitActions[action] = struct{}{}
	}
	for _, action := range chitchat {
		g.chitchatActions[action] = struct{}{}
	}
	return g
}

// check runs the guards shared by every plan variant, in precedence order.
// It returns ok=false when the plan should progress normally.
func (g interceptors) check(t ports.Tracker) (action string, reason Reason, ok bool) {
	latest := t.LatestActionName()
	if _, exiting := g.exitActions[latest]; exiting || domain.IsAskAction(latest) {
		return domain.ActionListen, ReasonListen, true
	}

	intent := domain.NormalizeIntent(t.LatestIntent())
	if action, found := g.exit[intent]; found {
		return action, ReasonExit, true
	}
	if action, found := g.chitchat[intent]; found {
		// Any chitchat reply counts, so two chitchat intents in a row do not stack replies.
		if _, replied := g.chitchatActions[latest]; !replied {
			return action, ReasonChitchat, true
		}
	}
	return "", "", false
}

func (g interceptors) exitDict() map[string]string     { return maps.Clone(g.exit) }
func (g interceptors) chitchatDict() map[string]string { return maps.Clone(g.chitchat) }
