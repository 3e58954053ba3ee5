package tui

type stage int

const (
	stageInput stage = iota
	stageLoading
	stageSession
	stagePathPrompt
	stageScopePrompt
)

type paneFocus int

const (
	focusNotes paneFocus = iota
	focusDocument
)

const heroTagline = "Read a document and keep outline notes in lockstep."

const (
	minPaneWidth  = 24
	minPaneHeight = 5
)

const (
	composerTargetPlaceholder = "Path to an outline file or a PDF…"
	composerPDFPlaceholder    = "Path or URL of the PDF this outline describes…"
)
