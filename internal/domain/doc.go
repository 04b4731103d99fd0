// Package domain computes standardized drought indices from monthly
// precipitation records.
//
// # Input
//
// A station record is a chronological list of monthly observations: year,
// month (1–12), precipitation (mm, ≥ 0) and optionally potential
// evapotranspiration (PE, mm). A missing precipitation or PE is a nil
// pointer, never a sentinel number. [NewSeries] rejects months outside 1–12,
// negative or non-finite values, duplicate months and rows that go back in
// time. Calendar gaps are allowed.
//
// # Aggregation scales
//
//	monthly:  one period per observation, grouped by calendar month
//	seasonal: DJF (1), MAM (2), JJA (3), SON (4), grouped by season;
//	          December opens the winter labelled with its own year
//	annual:   January–December totals, one group
//
// A seasonal or annual total is missing unless every month of the period is
// present with a value.
//
// # Indices
//
// China Z-Index (CZI), with μ, σ (sample, n−1) and skewness Cs of the group:
//
//	Zi  = (P − μ) / σ
//	CZI = 6/Cs · ∛(Cs/2 · Zi + 1) − 6/Cs + Cs/6      (Zi when Cs = 0)
//
// Modified CZI (MCZI) is the robust Z-score (P − median) / s, where
// s = 1.4826 · MAD, falling back to 1.2533 · mean absolute deviation from the
// median when the MAD is zero.
//
// Composite Index (CI), monthly only:
//
//	CI = 0.47 · SPI₁ + 0.36 · SPI₃ + 0.96 · M₃₀
//	M₃₀ = (P − PE) / P
//
// SPI terms here are a normal approximation (window sums standardized per
// ending calendar month), not the gamma-fitted SPI.
//
// # Undefined values
//
// A group with fewer than two values or zero dispersion is undefined, and so
// is every index value that depends on it. Likewise a window crossing a gap
// or a missing value, and M₃₀ when P = 0. Undefined values are nil and
// classify as "No Data"; nothing is imputed.
//
// # Classification
//
// All indices share one seven-band scheme, see [Classify].
package domain
