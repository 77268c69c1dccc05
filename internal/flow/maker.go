package flow

// Maker is the contract flow builders satisfy: a configuration struct whose
// Make method assembles a job or flow for a structure, optionally copying
// outputs from a previous calculation directory. Both arguments accept
// references so makers compose: the output of one maker's graph feeds the
// next maker's Make.
type Maker interface {
	// MakerName identifies the maker in assembled graph names.
	MakerName() string
	// Make assembles the declarative graph for the given structure.
	Make(s StructureArg, prevDir DirArg) (Node, error)
}
