// Package enrollmart turns enrollment event logs into a star schema and loads
// it into an analytical store.
//
// A run has the following stages, each behind a small interface so that the
// sub-packages can supply implementations which talk to other systems.
//
// 1. Source
//
//    A Source hands out raw lines one at a time, in input order. It does not
//    interpret them. The file and s3 packages provide RawSources (readers of
//    whole files or objects), which NewLineSource turns into a Source.
//
// 2. LineParser
//
//    A LineParser turns one raw line into either an EnrollmentEvent or a
//    ParseFailure carrying a Reason. It never stops a run: a bad line is a
//    diagnostic, not an error. Two formats are supported, see NewLineParser.
//
// 3. Registries and FactBuilder
//
//    UserRegistry, CourseRegistry and TimeRegistry deduplicate dimension rows
//    by natural key. The first row seen for a key wins and later conflicting
//    attributes are ignored. FactBuilder emits one EnrollmentFact per event
//    and flags facts whose final_price exceeds their price.
//
// 4. Pipeline
//
//    Pipeline drives the stages above over a Source and returns a Result with
//    the four row sets, the diagnostics, and an Outcome. Input with no
//    non-blank lines is a successful no-op (OutcomeEmptyInput); input in
//    which no line parses fails with ErrNoRowsProduced.
//
// 5. Loader
//
//    A Loader writes row sets into a store. Load calls it for dimensions first
//    and facts last. See the clickhouse and mysql packages.
//
// Interchange between the transform and load stages is a directory of CSV
// files, see the csv package. Every CLI run is journaled in a RunLog, see the
// boltdb and leveldb packages.
package enrollmart
