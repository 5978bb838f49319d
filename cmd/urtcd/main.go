// Command urtcd is a minimal demonstration host for the urtc library: it
// serves an HTTP long-poll signaling endpoint, the reference transport
// named in the design's external interfaces, POST a remote offer to
// /offer and get the local answer back in the response body. Wiring this
// up to a richer transport (websocket, a message queue, whatever the
// embedding program already speaks) is left to the caller.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/mauka-labs/urtc"
	"github.com/mauka-labs/urtc/internal/logging"
)

var (
	flagPort        uint16
	flagSTUNServers []string
	flagLogLevel    string
)

func init() {
	flag.Uint16Var(&flagPort, "port", 8000, "Listen on this port")
	flag.StringSliceVar(&flagSTUNServers, "stun-server", nil,
		"STUN server host[:port] (may be repeated)")
	flag.StringVar(&flagLogLevel, "log-level", "info",
		"default log level (error|warn|info|debug|trace)")
}

func main() {
	flag.Parse()

	if level, err := logging.ParseLevel(flagLogLevel); err != nil {
		color.Yellow("ignoring invalid --log-level %q: %v", flagLogLevel, err)
	} else {
		logging.DefaultLogger = logging.DefaultLogger.WithDefaultLevel(level)
	}

	banner := color.New(color.FgCyan, color.Bold)
	banner.Printf("urtcd listening on :%d\n", flagPort)

	http.HandleFunc("/offer", handleOffer)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", flagPort), nil); err != nil {
		color.Red("listen: %v", err)
		os.Exit(1)
	}
}

// handleOffer takes a remote SDP offer in the request body and writes the
// local answer to the response body. The peer connection this creates
// lives for the lifetime of the process; a production embedder would key
// connections by session and tear them down on disconnect.
func handleOffer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pc, err := urtc.NewPeerConnection(urtc.Config{
		STUNServers: flagSTUNServers,
		OnICECandidate: func(candidate string) {
			if candidate != "" {
				fmt.Fprintf(os.Stderr, "candidate: %s\n", candidate)
			}
		},
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := pc.SetRemoteDescription(string(body)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	answer, err := pc.CreateAnswer()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Write([]byte(answer))
}
