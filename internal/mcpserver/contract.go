package mcpserver

// LinkSyntax describes how notes reference each other, for LLM consumers
// that create or edit notes.
const LinkSyntax = `# notegraph Link Syntax

Notes link to each other by title with double square brackets.

## Rules

1. A link is ` + "`[[Note Title]]`" + `. The text between the brackets is the target title.
2. Titles match case-insensitively: ` + "`[[project plan]]`" + ` resolves to a note titled "Project Plan".
3. Whitespace around the title inside the brackets is ignored.
4. A title cannot contain ` + "`[`" + ` or ` + "`]`" + `. Such text is not a link.
5. A link to a title that no note has is kept as written and simply unresolved.
6. Renaming a note rewrites every ` + "`[[old title]]`" + ` link in other notes to the new title.
7. Titles are at most 100 characters; an empty title becomes "Untitled Note".

## Tags

Tags are plain names attached to a note. Names are unique ignoring case; tagging a
note with "Work" when a tag "work" exists reuses the existing tag.

## Example

` + "```" + `
Met with the team about [[Project Plan]].
Budget details live in [[Budget 2025]].
` + "```" + `
`
