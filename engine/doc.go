// Package engine runs a widget tree against a screen.
//
// An App owns one Session: the tree, the stylesheets and theme variables that style it,
// and the cascade built from them. Every mutation happens on the run loop goroutine,
// either before Run or inside a Message. Other goroutines talk to the loop through Post,
// Go and After, which feed a lock-free MPSC queue.
//
// The loop renders at most one frame per tick of the MaxFPS ticker however many changes
// accumulated: restyle dirty nodes, resolve layout, compose. A resize arriving while a
// pass is in flight supersedes it; the pass is discarded and a full pass at the new size
// follows. Finished frames go to a presenter goroutine through a one-slot mailbox, so a
// slow terminal drops intermediate frames instead of stalling input handling. A screen
// write error ends Run.
package engine
