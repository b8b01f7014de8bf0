package storex

// Result is what an ActionCreator produces. It is a closed set: Patch,
// Transform and Effect are the only implementations.
type Result interface {
	isResult()
}

// Transform is evaluated at dispatch time with the latest state and the
// store's actions. The returned Patch is merged; nil means no commit.
type Transform func(state State, actions *Actions) Patch

// Effect runs for its side effects only. It never commits and never notifies;
// deferred work it starts re-enters the store through Actions.Dispatch.
type Effect func(state State, actions *Actions)

func (Patch) isResult()     {}
func (Transform) isResult() {}
func (Effect) isResult()    {}

// Kind names the shape of a Result for logs and metrics.
type Kind string

const (
	KindNone      Kind = "none"
	KindPatch     Kind = "patch"
	KindTransform Kind = "transform"
	KindEffect    Kind = "effect"
)

// KindOf classifies a Result. A nil Result is KindNone.
func KindOf(r Result) Kind {
	switch r.(type) {
	case Patch:
		return KindPatch
	case Transform:
		return KindTransform
	case Effect:
		return KindEffect
	default:
		return KindNone
	}
}

// resolve turns a Result into the fragment to commit, evaluating transforms
// and effects against current. A nil fragment means nothing is committed.
func resolve(r Result, current State, actions *Actions) Patch {
	switch res := r.(type) {
	case Patch:
		return res
	case Transform:
		if res == nil {
			return nil
		}
		return res(current, actions)
	case Effect:
		if res != nil {
			res(current, actions)
		}
		return nil
	default:
		return nil
	}
}
