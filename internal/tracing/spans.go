package tracing

// Span names.
const (
	SpanHighlightRange = "highlight.range"
	SpanHighlightFile  = "highlight.file"
	SpanCheckpointLoad = "checkpoint.load"
	SpanCheckpointSave = "checkpoint.save"
)

// Attribute keys.
const (
	AttrDocumentID   = "document.id"
	AttrDocumentPath = "document.path"
	AttrLanguage     = "document.language"
	AttrRows         = "document.rows"

	AttrRangeFrom    = "range.from"
	AttrRangeTo      = "range.to"
	AttrReplayedRows = "replay.rows"
	AttrReplayFrom   = "replay.from"
	AttrCachedRows   = "cache.rows"
	AttrCheckpoints  = "checkpoint.count"
)

// Event names.
const (
	EventReplay = "replay"
)
