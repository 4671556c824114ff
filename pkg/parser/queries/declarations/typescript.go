// Package declarations holds the tree-sitter patterns that find named type
// declarations in TypeScript sources.
package declarations

// TSQueries matches every interface and type alias declaration. Callers keep
// only the top-level ones (directly under program, or wrapped by a single
// export or declare).
//
// Captures:
//   - @interface.name / @interface.definition
//   - @alias.name / @alias.value / @alias.definition
const TSQueries = `
; ============================================================================
; Interfaces
; ============================================================================

; interface ButtonProps { ... }
; export interface ButtonProps extends Base { ... }
; declare interface ButtonProps { ... }
(interface_declaration
  name: (type_identifier) @interface.name
) @interface.definition

; ============================================================================
; Type aliases
; ============================================================================

; type ButtonProps = { ... }
; export type ButtonProps = Base & { ... }
(type_alias_declaration
  name: (type_identifier) @alias.name
  value: (_) @alias.value
) @alias.definition
`
