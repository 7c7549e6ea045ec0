package wildcard

// EllipsisOrder controls the order in which a recursive ellipsis visits
// a directory relative to its own contents.
type EllipsisOrder int

const (
	// OrderNormal yields each directory before the paths found beneath
	// it, in a depth-first sweep.
	OrderNormal EllipsisOrder = iota
	// OrderInsideOut yields the paths found beneath a directory before
	// the directory itself. Useful when removing trees, where children
	// must go before their parents.
	OrderInsideOut
	// OrderBreadthFirst yields all paths at one depth before descending
	// to the next.
	OrderBreadthFirst
)

func (o EllipsisOrder) String() string {
	switch o {
	case OrderNormal:
		return "normal"
	case OrderInsideOut:
		return "inside-out"
	case OrderBreadthFirst:
		return "breadth-first"
	default:
		return "unknown"
	}
}
