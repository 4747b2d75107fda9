/*
Package truthtable enumerates input combinations and pairs them with device outputs.

Combinations are produced lazily as an iterator so large input counts never
materialize more than the caller ranges over. The input count is validated
against a configurable maximum before anything is generated.

	seq, err := truthtable.Combinations(3)
	if err != nil {
		return err
	}
	for i, row := range seq {
		fmt.Println(i, row) // 0 [0 0 0], 1 [0 0 1], ...
	}
*/
package truthtable
