package pipeline

// Stage identifies the phase a progress event belongs to.
type Stage string

const (
	StagePages         Stage = "pages"
	StagePagesComplete Stage = "pages_complete"
	StageItems         Stage = "items"
)

// Event is one progress notification. For StageItems, Current is the
// 1-based index of the attempted item and Total the number of items.
type Event struct {
	RunID   string
	Stage   Stage
	Current int
	Total   int
	Message string
}

// Observer receives progress events. It is called synchronously from the
// crawl loop and must not block.
type Observer func(Event)

func (o Observer) emit(e Event) {
	if o != nil {
		o(e)
	}
}
