package pagedb

// stackElement is a directory on the descent path and the next entry to
// visit in it.
type stackElement struct {
	ino uint32
	dir *Dir
	idx int
}

type stack struct {
	list []stackElement
}

func (s *stack) push(e stackElement) {
	s.list = append(s.list, e)
}

func (s *stack) pop() stackElement {
	if len(s.list) == 0 {
		return stackElement{}
	}
	v := s.list[len(s.list)-1]
	s.list = s.list[:len(s.list)-1]
	return v
}

// top returns the last pushed element in place, or nil.
func (s *stack) top() *stackElement {
	if len(s.list) == 0 {
		return nil
	}
	return &s.list[len(s.list)-1]
}

func (s *stack) depth() int {
	return len(s.list)
}

func (s *stack) contains(ino uint32) bool {
	for _, e := range s.list {
		if e.ino == ino {
			return true
		}
	}
	return false
}
