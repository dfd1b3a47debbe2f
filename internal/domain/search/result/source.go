package result

// Source identifies where a result came from.
type Source string

// Known result sources.
const (
	SourceSerper        Source = "serper"
	SourceWikipedia     Source = "wikipedia"
	SourceDuckDuckGo    Source = "duckduckgo"
	SourceLocalDocument Source = "local_document"
	SourceUnknown       Source = "unknown"
)

// qualityBonus is the fixed ranking bonus per source.
var qualityBonus = map[Source]int{
	SourceSerper:     3,
	SourceWikipedia:  2,
	SourceDuckDuckGo: 1,
}

// QualityBonus returns the ranking bonus for the source (0 for unknown sources).
func (s Source) QualityBonus() int { return qualityBonus[s] }

// ParseSource maps a provider tag to a Source, falling back to SourceUnknown.
func ParseSource(s string) Source {
	switch Source(s) {
	case SourceSerper, SourceWikipedia, SourceDuckDuckGo, SourceLocalDocument:
		return Source(s)
	default:
		return SourceUnknown
	}
}
