/*
Package workflow drives one experiment from configuration to submission.

A Controller moves through three states:

	unconfigured --Setup--> configured --Start--> polling
	                          ^                     |
	                          +------Restart--------+

Setup arms the device, Start asks it to compute the truth table and begins
polling for the output rows, Restart discards them and stops polling, and Send
posts whatever rows are present to the backend. Remote failures never change
the state; they are returned and reported once through the OnNotify hook.

Each Controller owns its state. Instances share nothing. Hooks run on the
calling goroutine (or the poll goroutine for OnPoll) and may read Status and
Snapshot, but must not call the other operations.
*/
package workflow
