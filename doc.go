/*
Package cif parses, validates, queries, updates and serializes
Crystallographic Information Files (CIF) and their macromolecular
dictionary-driven dialect, mmCIF. This package corresponds (almost)
exactly to version 1.1 of the CIF specification:
http://www.iucr.org/resources/cif/spec/version1.1/cifsyntax

A File holds an ordered set of DataBlocks, each an ordered set of
Categories (tables) of Rows. Load parses CIF text into this store; Save
writes it back out. ParseDictionary compiles a CIF dictionary into a
Validator, which File.SetValidator attaches: item types and enumerations
are checked as values are written or edited (Emplace, SetCell), a strict
validator rejects unknown tags, and File.Validate reports missing
mandatory items, duplicate primary keys and broken inter-category links
across the whole file. Condition, Find and the Category mutators
(Emplace, SetCell, Erase) provide the query and update surface; SetCell
and Erase propagate primary-key renames and deletions across a category's
link groups automatically.

This package does not enforce maximum line length limits while reading or
writing CIF files.
*/
package cif
