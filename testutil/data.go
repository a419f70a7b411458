package testutil

// AssociationColumns is a three-variant association result in column form.
func AssociationColumns() map[string]any {
	return map[string]any{
		"variant":         []any{"10:100_A/G", "10:200_C/T", "10:300_G/A"},
		"position":        []any{100.0, 200.0, 300.0},
		"pvalue":          []any{0.5, 0.001, 0.2},
		"chromosome":      []any{"10", "10", "10"},
		"ref_allele":      []any{"A", "C", "G"},
		"analysis":        []any{45.0, 45.0, 45.0},
		"beta":            []any{0.1, -0.4, 0.02},
		"ref_allele_freq": []any{0.3, 0.12, 0.45},
	}
}

// LDColumns is an LD page covering two of the three association positions.
func LDColumns() map[string]any {
	return map[string]any{
		"chromosome2": []any{"10", "10"},
		"position2":   []any{200.0, 300.0},
		"variant2":    []any{"10:200_C/T", "10:300_G/A"},
		"correlation": []any{1.0, 0.35},
	}
}

// GeneRows is a gene track response in row form.
func GeneRows() []any {
	return []any{
		map[string]any{"gene_id": "ENSG00000148737.15", "gene_name": "TCF7L2", "chrom": "10", "start": 90.0, "end": 250.0, "strand": "+"},
		map[string]any{"gene_id": "ENSG00000197142.10", "gene_name": "ACSL5", "chrom": "10", "start": 280.0, "end": 400.0, "strand": "+"},
	}
}

// AggregationRows is an aggregation test result with several masks per gene.
func AggregationRows() []any {
	return []any{
		map[string]any{"group": "TCF7L2", "mask": "pLoF", "test": "burden", "pvalue": 0.04},
		map[string]any{"group": "TCF7L2", "mask": "missense", "test": "skat", "pvalue": 0.002},
		map[string]any{"group": "ACSL5", "mask": "pLoF", "test": "burden", "pvalue": 0.6},
	}
}
