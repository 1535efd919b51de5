package reconciler

// safetyGateInput carries everything applySafetyGate needs to decide
// which proposed local deletions to actually let through (spec.md
// §4.1.3).
type safetyGateInput struct {
	ToDeleteLocally []string
	TotalLocal      int
	CurrentBoardID  string
	FirstSyncEver   bool
	RemoteBoards    int
	BulkPercent     float64
}

// safetyResult is applySafetyGate's verdict: which IDs are still allowed
// to be deleted, plus warnings and a record of everything withheld.
type safetyResult struct {
	Allowed      []string
	Warnings     []string
	SkippedItems []SkippedItem
}

// applySafetyGate runs the ordered protections spec.md §4.1.3 describes,
// in priority order: an apparently-corrupt or empty remote manifest, a
// first-ever sync, a 100% local wipe, the board currently open in the
// UI, then a percentage-based bulk-delete warning. Earlier checks that
// withhold everything short-circuit the later ones.
func applySafetyGate(in safetyGateInput) safetyResult {
	if len(in.ToDeleteLocally) == 0 {
		return safetyResult{}
	}

	// A remote manifest with zero boards registered is treated the same
	// as a first sync: either this really is a new device, or the
	// manifest failed to decrypt and decoded as empty. Either way,
	// withholding every delete is the safe default (spec.md §4.1.3
	// NEW_DEVICE_PROTECT, and the "remote apparently corrupt" scenario
	// which the testable-properties table also reports as "new_device").
	if in.RemoteBoards == 0 || in.FirstSyncEver {
		return withholdAll(in.ToDeleteLocally, "new_device")
	}

	if in.TotalLocal > 0 && len(in.ToDeleteLocally) == in.TotalLocal {
		return withholdAll(in.ToDeleteLocally, "block_all_delete")
	}

	result := safetyResult{}

	remaining := make([]string, 0, len(in.ToDeleteLocally))

	for _, id := range in.ToDeleteLocally {
		if in.CurrentBoardID != "" && id == in.CurrentBoardID {
			result.SkippedItems = append(result.SkippedItems, SkippedItem{
				Kind: "board", ID: id, Reason: "current_board_protect",
			})

			continue
		}

		remaining = append(remaining, id)
	}

	if in.TotalLocal > 0 {
		percent := float64(len(remaining)) / float64(in.TotalLocal) * 100
		if percent > in.BulkPercent {
			return withholdRemaining(remaining, result)
		}
	}

	result.Allowed = remaining

	return result
}

func withholdAll(ids []string, reason string) safetyResult {
	result := safetyResult{}

	for _, id := range ids {
		result.SkippedItems = append(result.SkippedItems, SkippedItem{Kind: "board", ID: id, Reason: reason})
	}

	return result
}

func withholdRemaining(ids []string, result safetyResult) safetyResult {
	result.Warnings = append(result.Warnings, "bulk delete exceeds safety threshold, withheld")

	for _, id := range ids {
		result.SkippedItems = append(result.SkippedItems, SkippedItem{Kind: "board", ID: id, Reason: "bulk_delete"})
	}

	return result
}
