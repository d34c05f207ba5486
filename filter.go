package main

// acceptRead gates a read before masking. Only mapped reads reaching both
// cutoffs are kept, everything else is dropped silently.
func acceptRead(unmapped bool, mapq, length, mapqCutoff, lenCutoff int) bool {
	if unmapped {
		return false
	}

	if mapq < mapqCutoff {
		return false
	}

	if length < lenCutoff {
		return false
	}

	return true
}

func filterReads(record *Record, settings *Settings) bool {
	return acceptRead(record.IsUnmapped(), int(record.MapQ), record.QueryLength, settings.MapQCutoff, settings.LenCutoff)
}
