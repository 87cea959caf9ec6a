// Command echo is the external-process counterpart to the in-process echo
// stage: it speaks the same newline-delimited wire protocol
// world.PipeNodeHandle expects, so a simulation can drive it exactly like
// any other node, the Go rendition of the original's standalone `echo`
// binary used by the (disabled-by-default) blackbox test.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rrruko/amaru-sim/echo"
	"github.com/rrruko/amaru-sim/stage"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	in, driver, recv := echo.BuildNode()
	codec := echo.PipeCodec()

	scanner := bufio.NewScanner(os.Stdin)
	writer := bufio.NewWriter(os.Stdout)

	for scanner.Scan() {
		env, err := codec.Unmarshal(scanner.Bytes())
		if err != nil {
			log.Error().Err(err).Msg("echo: decode request")
			continue
		}

		stage.EnqueueMsg(driver, in, env)
		if reason := driver.RunUntilBlocked(); reason.Kind != stage.Idle {
			log.Fatal().Stringer("reason", reason).Msg("echo: stage graph did not settle")
		}

		for _, reply := range recv.Drain() {
			line, err := codec.Marshal(reply)
			if err != nil {
				log.Error().Err(err).Msg("echo: encode reply")
				continue
			}
			fmt.Fprintf(writer, "%s\n", line)
		}
		writer.Flush()
	}

	if err := scanner.Err(); err != nil {
		log.Fatal().Err(err).Msg("echo: read stdin")
	}
}
