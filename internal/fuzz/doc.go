// Package fuzztests holds Go fuzz harnesses for the rewrite and staging
// pipeline: arbitrary bytes go through virt, every function is staged, and
// any graph that comes out must validate. Evaluation runs under a step limit.
package fuzztests
