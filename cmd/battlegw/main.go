// Command battlegw serves the text-to-music A/B battle gateway: it pairs
// a submitted prompt against two generation systems, collects their
// audio, and exposes /generate_battle, /record_vote, /systems,
// /prebaked, and /health_check over HTTP.
package main

func main() {
	Execute()
}
