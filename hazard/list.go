package hazard

import "sync/atomic"

// push atomically puts node at the head of the list rooted at head, using
// node's listNext link. Lock-free Treiber-stack push; retried on CAS
// failure, which only happens when a concurrent push or pop changed head
// first.
func push[T any](head *atomic.Pointer[slot[T]], node *slot[T]) {
	for {
		old := head.Load()
		node.listNext.Store(old)
		if head.CompareAndSwap(old, node) {
			return
		}
	}
}

// pop atomically removes and returns the head of the list rooted at head,
// or sentinel if the list is empty. The returned node (if not sentinel)
// has its listNext cleared, marking it as belonging to no list.
func pop[T any](head *atomic.Pointer[slot[T]], sentinel *slot[T]) *slot[T] {
	for {
		node := head.Load()
		if node == sentinel {
			return sentinel
		}
		next := node.listNext.Load()
		if head.CompareAndSwap(node, next) {
			node.listNext.Store(nil)
			return node
		}
	}
}

// remove splices target out of the list rooted at head by walking from
// the head looking for it. This suffers the classic ABA hazard inherent
// to lock-free linked-list splicing; it is benign here because slots are
// never freed, only moved between lists, and the sentinel always
// terminates the search. If the CAS at the splice point fails because a
// concurrent push/pop/remove changed the link out from under us, the walk
// restarts from head. Panics if target is not found before the sentinel,
// which would mean the caller's bookkeeping about which list target is on
// is wrong.
func remove[T any](head *atomic.Pointer[slot[T]], sentinel, target *slot[T]) {
	for {
		var prev *slot[T]
		cur := head.Load()
		for cur != target && cur != sentinel {
			prev = cur
			cur = cur.listNext.Load()
		}
		if cur == sentinel {
			panic("hazard: remove of a slot not present on the list")
		}

		next := cur.listNext.Load()
		var spliced bool
		if prev == nil {
			spliced = head.CompareAndSwap(cur, next)
		} else {
			spliced = prev.listNext.CompareAndSwap(cur, next)
		}
		if spliced {
			cur.listNext.Store(nil)
			return
		}
	}
}
