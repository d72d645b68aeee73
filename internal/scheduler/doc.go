// Package scheduler runs format jobs either strictly sequentially or on
// a bounded worker pool, aggregating per-job outcomes in input order for
// deterministic reporting.
package scheduler
