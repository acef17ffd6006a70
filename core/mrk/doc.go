// Package mrk reads and writes the MARCMaker mnemonic text form of MARC21
// records.
//
// Each record is a block of lines starting with a =LDR line. A field line is
// "=TAG  " followed by the control data, or by two indicators and "$code"
// subfields. A backslash stands for a blank in the leader, control fields
// and indicators; "$", "\", "{" and "}" inside data are written as
// {dollar}, {bsol}, {lcub} and {rcub}.
package mrk
