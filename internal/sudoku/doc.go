// Package sudoku holds the recognized grid and the assembler that fills it.
//
// Assembler walks the 81 cells of a squared puzzle image, skips the ones that
// are visibly blank, and asks an ocr.Recognizer for the rest. Results are
// placed by cell position regardless of the order in which recognitions
// finish, so a Grid is always row-major.
//
// Grid offers text rendering (Preview), row access for writers, and a
// duplicate check (Conflicts) that flags likely misreads.
package sudoku
