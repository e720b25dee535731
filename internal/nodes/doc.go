// Package nodes implements the control-flow node executors: Loop, Parallel,
// Merge, Retry, RateLimit, TryCatch and Subworkflow. Each is an
// api.NodeExecutor that orchestrates further registry invocations,
// concurrency, timing, or recursion on top of the execution substrate.
//
// Retry, TryCatch, RateLimit and Parallel share one inline-operation
// interpreter (runOperations) that chains a payload through a
// {type, name, config} step list via the registry, building a throwaway
// node per step. This is how control-flow nodes run sub-logic without the
// full graph engine.
package nodes
