package object

// Iterator walks a lazily produced sequence.
type Iterator interface {
	// Next advances to the next item and reports whether there is one.
	Next() bool
	// Current returns the item Next advanced to.
	Current() Object
}

// Iterable values can be used in `for` loops. Each call to Iterate starts
// a fresh iteration.
type Iterable interface {
	Iterate() Iterator
}

type sliceIterator struct {
	items []Object
	i     int
}

func (it *sliceIterator) Next() bool {
	if it.i >= len(it.items) {
		return false
	}
	it.i++
	return true
}

func (it *sliceIterator) Current() Object { return it.items[it.i-1] }

// SliceIterator iterates over a snapshot of items.
func SliceIterator(items []Object) Iterator {
	return &sliceIterator{items: items}
}

// Iterate iterates over a snapshot of the elements.
func (a *Array) Iterate() Iterator {
	return SliceIterator(append([]Object(nil), a.Elements...))
}

// Iterate yields one-character strings.
func (s *String) Iterate() Iterator {
	runes := []rune(s.Value)
	items := make([]Object, len(runes))
	for i, r := range runes {
		items[i] = &String{Value: string(r)}
	}
	return SliceIterator(items)
}

// Iterate yields the keys in insertion order.
func (o *DynamicObject) Iterate() Iterator {
	keys := o.Keys()
	items := make([]Object, len(keys))
	for i, k := range keys {
		items[i] = k.Object()
	}
	return SliceIterator(items)
}

type rangeIterator struct {
	r       *Range
	cur     int64
	left    uint64
	started bool
}

func (it *rangeIterator) Next() bool {
	if !it.started {
		it.started = true
		it.cur = it.r.Start
		it.left = it.r.Len()
	} else if it.left > 0 {
		it.cur += it.r.Step
	}
	if it.left == 0 {
		return false
	}
	it.left--
	return true
}

func (it *rangeIterator) Current() Object { return &Integer{Value: it.cur} }

// Iterate produces Start, Start+Step, ... up to but excluding Stop.
func (r *Range) Iterate() Iterator {
	return &rangeIterator{r: r}
}
