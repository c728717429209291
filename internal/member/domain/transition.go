package domain

// allowedTransitions is the full lifecycle table. Self-transitions and any
// transition out of StatusRemovido are invalid; reactivation from removido is
// a separately-authorized operation, not a transition.
var allowedTransitions = map[Status][]Status{
	StatusTrial:        {StatusAtivo, StatusRemovido},
	StatusAtivo:        {StatusInadimplente, StatusRemovido},
	StatusInadimplente: {StatusAtivo, StatusRemovido},
	StatusRemovido:     {},
}

// CanTransition reports whether a member may move from one status to another.
// Unknown statuses on either side are invalid.
func CanTransition(from, to Status) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	if !knownStatus(to) {
		return false
	}
	for _, target := range targets {
		if target == to {
			return true
		}
	}
	return false
}

func knownStatus(s Status) bool {
	_, ok := allowedTransitions[s]
	return ok
}
