package llm

// TaskKind identifies which pipeline stage is requesting an LLM client.
type TaskKind string

const (
	TaskNarrativeSynthesis TaskKind = "narrative_synthesis"
	TaskDiscovery          TaskKind = "discovery"
	TaskDeepInvestigation  TaskKind = "deep_investigation"
	TaskValidation         TaskKind = "validation"
	TaskCrossReference     TaskKind = "cross_reference"
)

// ModelRouter maps TaskKind to a Client, with a default fallback. A CLI-wide
// override bypasses per-task routing entirely by constructing a router with
// no per-task clients (see cmd's buildModelRouter).
type ModelRouter struct {
	def     Client
	perTask map[TaskKind]Client
}

func NewModelRouter(def Client) *ModelRouter {
	return &ModelRouter{def: def, perTask: make(map[TaskKind]Client)}
}

// WithClient returns a router with an additional per-task client registered.
func (r *ModelRouter) WithClient(kind TaskKind, client Client) *ModelRouter {
	r.perTask[kind] = client
	return r
}

// ClientFor returns the mapped client for kind, or the default.
func (r *ModelRouter) ClientFor(kind TaskKind) Client {
	if c, ok := r.perTask[kind]; ok {
		return c
	}
	return r.def
}
