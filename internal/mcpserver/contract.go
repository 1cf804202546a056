package mcpserver

// MarkerFormatContract describes the inline marker wire format for LLM
// consumers that mint or patch markers directly.
const MarkerFormatContract = `# Inline Habit Marker Contract

Habit values live inside note text as inline markers:

` + "```" + `
{{<type>:<field1>,<field2>,...,<warnFlag>:<id>}}
` + "```" + `

A marker is usually preceded by a wikilink naming the habit it tracks:

` + "```" + `markdown
[[Reading]] : {{number:30,60,pages,T:id174953002711}}
` + "```" + `

## Types and payload layouts

| type     | payload fields                                    |
|----------|---------------------------------------------------|
| checks   | checked,total,bits,checkedGlyph,uncheckedGlyph,warn |
| rating   | value,max,ratedGlyph,unratedGlyph,warn            |
| number   | value,upper,unit,warn                             |
| progress | value,total,warn                                  |

## Rules

1. **Ids are opaque.** They match ` + "`" + `id[0-9]+` + "`" + ` and exist only to
   retarget a marker for rewriting. Never invent one; mint markers with the
   ` + "`" + `mint_marker` + "`" + ` flow or the log_habit tool.
2. **The warn flag is the last field.** ` + "`" + `T` + "`" + ` (or empty) enables the
   missing-habit warning annotation, ` + "`" + `F` + "`" + ` disables it.
3. **No commas inside glyphs or units.** The payload has no escaping; a comma
   would corrupt the field layout.
4. **Checks bits** are a string of ` + "`" + `0` + "`" + `/` + "`" + `1` + "`" + ` cells whose
   length equals the total; the checked count is the number of ` + "`" + `1` + "`" + ` cells.
5. **Daily values are aggregated** from the markers under the configured
   heading of each daily note. The first two payload fields are read as
   value and total.

## Example daily note section

` + "```" + `markdown
## Habit Tracker

[[Reading]] : {{number:30,60,pages,T:id174953002711}}
[[Meditation]] : {{checks:2,3,110,,,T:id174953002744}}
[[Mood]] : {{rating:4,5,,,T:id174953002788}}
` + "```" + `
`
