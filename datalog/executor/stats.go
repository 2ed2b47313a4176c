package executor

// Stats counts evaluation work since the network was compiled
type Stats struct {
	Queries      int64 // Query and QueryAtom calls
	FactsSeeded  int64 // fact rules replayed by Execute, including repeats
	Asserted     int64 // tuples inserted through Assert
	Derived      int64 // tuples newly stored by upward propagation
	Duplicates   int64 // insertions that found the tuple already stored
	Explorations int64 // key sets explored downward
	MemoHits     int64 // downward pulls answered by the memo
	RowsLoaded   int64 // rows returned by relation loads
}
