package reconciler

// mergeBoards unions a conflicting board's local and remote elements by
// id, keeping local content wherever both sides define the same element
// differently (spec.md §4.1.4: "local wins on content mismatch"). The
// merged updatedAt is the max of both sides, and every element id present
// in both copies with differing content is reported as a conflict.
func mergeBoards(local, remote *boardDoc) (*boardDoc, []string, error) {
	merged := *local
	merged.Elements = nil

	remoteByID := make(map[string][]byte, len(remote.Elements))
	remoteOrder := make([]string, 0, len(remote.Elements))

	for _, raw := range remote.Elements {
		id, err := elementID(raw)
		if err != nil {
			return nil, nil, err
		}

		remoteByID[id] = raw
		remoteOrder = append(remoteOrder, id)
	}

	var conflicts []string

	seen := make(map[string]bool, len(local.Elements))

	for _, raw := range local.Elements {
		id, err := elementID(raw)
		if err != nil {
			return nil, nil, err
		}

		seen[id] = true

		remoteRaw, inRemote := remoteByID[id]
		if !inRemote {
			merged.Elements = append(merged.Elements, raw)
			continue
		}

		localSum, err := checksumElement(raw)
		if err != nil {
			return nil, nil, err
		}

		remoteSum, err := checksumElement(remoteRaw)
		if err != nil {
			return nil, nil, err
		}

		if localSum != remoteSum {
			conflicts = append(conflicts, id)
		}

		// Local wins regardless of whether content differed.
		merged.Elements = append(merged.Elements, raw)
	}

	for _, id := range remoteOrder {
		if seen[id] {
			continue
		}

		merged.Elements = append(merged.Elements, remoteByID[id])
	}

	if remote.UpdatedAt > merged.UpdatedAt {
		merged.UpdatedAt = remote.UpdatedAt
	}

	return &merged, conflicts, nil
}
