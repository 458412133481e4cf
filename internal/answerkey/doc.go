// Package answerkey reads answer keys and holds the active one.
//
// A key arrives as a table: one column per subject, each cell encoding one
// "question-answer" pair such as "12-b" or "7-a,c". Decode turns .xlsx, .csv
// and .json files into a Table; Parse turns a Table into a Key.
//
// Parsing is best effort. Every non-blank cell yields a CellResult that is
// either a parsed entry or a skip with its reason, and skips become warnings
// in the Report. Only a key where nothing parses at all is rejected, with an
// InvalidKeyFormatError naming the first bad cell.
//
// Answers are normalized to lower case with the comma-separated options
// trimmed and kept in their written order, so "2- B, C" is stored as "b,c".
// Scoring compares that string exactly.
//
// Store keeps the key currently in force. Replacing it swaps the whole key
// at once, so readers see either the old key or the new one, never a mix.
package answerkey
