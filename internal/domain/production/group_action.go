package production

// GroupActionTargets picks which members of a kitchen group a bulk status change applies to.
//
//   - InProgress starts every Pending member.
//   - Done finishes every InProgress member, or every Pending member when none is in progress.
//   - Pending reverts every member that can be reverted; Cancelled members are left alone.
//
// Any other requested status, or no matching member, yields nil.
func GroupActionTargets(members []Order, requested Status) []string {
	var ids []string
	switch requested {
	case StatusInProgress:
		ids = idsWithStatus(members, StatusPending)
	case StatusDone:
		ids = idsWithStatus(members, StatusInProgress)
		if len(ids) == 0 {
			ids = idsWithStatus(members, StatusPending)
		}
	case StatusPending:
		for _, m := range members {
			if m.Status != StatusPending && m.Status.CanRevertTo(StatusPending) {
				ids = append(ids, m.ID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func idsWithStatus(members []Order, st Status) []string {
	var ids []string
	for _, m := range members {
		if m.Status == st {
			ids = append(ids, m.ID)
		}
	}
	return ids
}
