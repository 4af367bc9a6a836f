// Package generator provides the file-operation primitives the scaffolder
// and migration planner build on: validated operations, a two-phase
// executor, transactional writes, and a cached text/template renderer.
//
// Operations are values describing a change; nothing touches disk until the
// executor runs them, and a whole plan is validated before the first write.
package generator
