// Package engine implements the hierarchical lifecycle execution core of
// bosun: the component tree model, the phase-ordering traversal, and the
// execution report with its fail-fast abort policy.
//
// A Deployment owns an ordered tree of Components. Each component declares
// which of the five lifecycle phases (build, package, apply, deploy,
// undeploy) it implements, and carries one hook per implemented phase. The
// Traverser walks the tree for a requested phase:
//
//   - build, package: children before parent (post-order), so a parent can
//     package artifacts its children already produced.
//   - apply: the Provisioner applies the deployment's root module first,
//     then component apply hooks run parent before children (pre-order).
//   - deploy: parent before children (pre-order).
//   - undeploy: the exact reverse of the deploy order; the Provisioner's
//     destroy step, when requested, runs last.
//
// Traversal is strictly sequential. Siblings execute in declared order. A
// component lacking a phase is recorded as skipped and the walk continues; a
// phase failure aborts the remainder of the run, recording every pending
// step as not-attempted. The resulting Report is append-only during the run
// and immutable afterwards.
package engine
