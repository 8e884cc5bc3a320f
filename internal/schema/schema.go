// Package schema defines the fixed feature schema for KOI transit-candidate
// classification. Every positional array in the model artifact (medians,
// means, stds, weights) is aligned to the ordered key list defined here.
package schema

// FeatureKeys is the ordered list of catalogue columns the classifier
// consumes. Order matters: the trained weight vector and the normalization
// statistics are positionally aligned to this slice.
var FeatureKeys = []string{
	"koi_period",
	"koi_period_err1",
	"koi_period_err2",
	"koi_time0bk",
	"koi_time0bk_err1",
	"koi_time0bk_err2",
	"koi_impact",
	"koi_impact_err1",
	"koi_impact_err2",
	"koi_duration",
	"koi_duration_err1",
	"koi_duration_err2",
	"koi_depth",
	"koi_depth_err1",
	"koi_depth_err2",
	"koi_prad",
	"koi_prad_err1",
	"koi_prad_err2",
	"koi_teq",
	"koi_insol",
	"koi_insol_err1",
	"koi_insol_err2",
	"koi_model_snr",
	"koi_tce_plnt_num",
	"koi_steff",
	"koi_steff_err1",
	"koi_steff_err2",
	"koi_slogg",
	"koi_slogg_err1",
	"koi_slogg_err2",
	"koi_srad_err1",
	"koi_srad_err2",
	"ra",
}

// LeakageKeys are catalogue columns that leak the target disposition and must
// never reach a client-facing payload (identifiers, vetting flags, the
// disposition itself and its score).
var LeakageKeys = map[string]struct{}{
	"kepler_name":       {},
	"kepoi_name":        {},
	"kepid":             {},
	"koi_disposition":   {},
	"koi_pdisposition":  {},
	"koi_fpflag_nt":     {},
	"koi_fpflag_ss":     {},
	"koi_fpflag_co":     {},
	"koi_fpflag_ec":     {},
	"koi_tce_delivname": {},
	"koi_teq_err1":      {},
	"koi_teq_err2":      {},
	"koi_kepmag":        {},
	"koi_srad":          {},
	"koi_score":         {},
}

// RawRecord is a decoded input record before validation. Values may be JSON
// numbers, numeric strings, or anything else a client sent; extra keys are
// tolerated and dropped during validation.
type RawRecord map[string]interface{}

// FeatureVector maps every schema key, and only schema keys, to a finite
// float64 value.
type FeatureVector map[string]float64

// StripLeakage returns a copy of record with all leakage columns removed.
func StripLeakage(record RawRecord) RawRecord {
	out := make(RawRecord, len(record))
	for k, v := range record {
		if _, leaks := LeakageKeys[k]; leaks {
			continue
		}
		out[k] = v
	}
	return out
}
