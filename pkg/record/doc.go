// Package record defines the canonical output records of an extraction:
// Profile, Post and Comment. Both fetch strategies normalize into these
// types, so downstream consumers never see which path produced a record.
//
// Engagement counts use Metric, which keeps "the source withheld this
// number" distinct from zero. An unknown Metric marshals as JSON null.
//
//	likes := record.MetricOf(1234)
//	shares := record.UnknownMetric()
//	fmt.Println(likes, shares) // 1234 unknown
package record
