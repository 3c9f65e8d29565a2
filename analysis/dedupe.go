package analysis

// GroupThreads merges threads that the export split apart.
//
// The input is expected newest-first, as the legacy HTML export lists threads. The list is reversed into
// creation order and every thread whose member set equals that of an earlier thread has its messages
// appended to the earliest match and is dropped. Messages are not re-sorted here.
//
// The scan is O(n²) over threads, not messages. Merged messages are only in order if the input was
// newest-first; Run sorts them afterwards.
func GroupThreads(threads []Thread) []Thread {
	ordered := make([]Thread, len(threads))
	for i := range threads {
		t := threads[len(threads)-1-i]
		t.Messages = append([]Message(nil), t.Messages...)
		ordered[i] = t
	}

	var remove []int
	for i := range ordered {
		for j := 0; j < i; j++ {
			if !sameMembers(ordered[j].Members, ordered[i].Members) {
				continue
			}
			ordered[j].Messages = append(ordered[j].Messages, ordered[i].Messages...)
			remove = append(remove, i)
			break
		}
	}

	removed := 0
	for _, idx := range remove {
		idx -= removed
		ordered = append(ordered[:idx], ordered[idx+1:]...)
		removed++
	}
	return ordered
}

// sameMembers reports set equality; order and repeats are ignored.
func sameMembers(a, b []string) bool {
	as := memberSet(a)
	bs := memberSet(b)
	if len(as) != len(bs) {
		return false
	}
	for m := range as {
		if _, ok := bs[m]; !ok {
			return false
		}
	}
	return true
}

func memberSet(members []string) map[string]struct{} {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set
}

// uniqueMembers drops repeated members, keeping the first occurrence.
func uniqueMembers(members []string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
