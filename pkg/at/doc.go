// Package at implements the line-oriented AT command protocol used to
// control the LED.
//
// Each command is one newline-terminated line of text:
//
//	AT                       -> OK
//	AT+SETCOLOR=W,R,G,B      -> echo of the line, then OK
//	AT+SAVECOLOR             -> OK
//	anything else            -> ERROR
//
// Commands are matched case-sensitively. AT must match the whole line,
// the others are matched anywhere in the line. A session processes lines
// strictly in the order they arrive and a failed command never stops it.
package at
