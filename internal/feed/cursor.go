package feed

// Window computes the half-open [start,end) slice of a feed of total
// items for a 1-indexed batch request, plus the client cursor. NextBatch
// is 0 when there is nothing left to fetch.
func Window(total, batchNumber, batchSize int) (start, end int, hasMore bool, nextBatch int) {
	if batchSize <= 0 || batchNumber <= 0 {
		return 0, total, false, 0
	}

	start = (batchNumber - 1) * batchSize
	if start >= total {
		return total, total, false, 0
	}

	end = start + batchSize
	if end > total {
		end = total
	}

	if end < total {
		return start, end, true, batchNumber + 1
	}
	return start, end, false, 0
}
