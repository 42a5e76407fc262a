// Package agent contains the decision pipeline at the heart of the
// automation service. It coordinates business-data retrieval, rule-based
// classification, action resolution and action execution for a single
// task, and assembles the final result record handed back to the worker.
package agent
