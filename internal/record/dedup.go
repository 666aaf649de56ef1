package record

// DedupByFinalPosition removes records that share a final position,
// keeping the first occurrence of each and preserving relative order.
// Used by the upload task to avoid submitting duplicate endings.
func DedupByFinalPosition(recs []Record) []Record {
	seen := make(map[string]struct{}, len(recs))
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if _, ok := seen[r.FinalPosition]; ok {
			continue
		}
		seen[r.FinalPosition] = struct{}{}
		out = append(out, r)
	}
	return out
}
