package client

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
	"github.com/rzbill/geyserstream/internal/auth"
	transports "github.com/rzbill/geyserstream/internal/cmd/client/transports"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// grpcAddrFromEnv returns the relay address from GEYSER_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("GEYSER_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:10000"
}

// connOptions are the connection flags shared by every command.
type connOptions struct {
	addr  string
	token string
	tls   bool
	ca    string
}

func addConnFlags(cmd *cobra.Command) {
	cmd.Flags().String("addr", grpcAddrFromEnv(), "Relay gRPC address (env GEYSER_GRPC)")
	cmd.Flags().String("token", os.Getenv("GEYSER_ACCESS_TOKEN"), "Access token (env GEYSER_ACCESS_TOKEN)")
	cmd.Flags().Bool("tls", false, "Use TLS")
	cmd.Flags().String("ca", "", "CA certificate file for TLS (implies --tls)")
}

func readConnFlags(cmd *cobra.Command) connOptions {
	var o connOptions
	o.addr, _ = cmd.Flags().GetString("addr")
	o.token, _ = cmd.Flags().GetString("token")
	o.tls, _ = cmd.Flags().GetBool("tls")
	o.ca, _ = cmd.Flags().GetString("ca")
	if o.ca != "" {
		o.tls = true
	}
	return o
}

// dial connects to the relay.
func (o connOptions) dial(ctx context.Context) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if o.tls {
		if o.ca != "" {
			c, err := credentials.NewClientTLSFromFile(o.ca, "")
			if err != nil {
				return nil, err
			}
			creds = c
		} else {
			creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
		}
	}
	return grpc.DialContext(ctx, o.addr, grpc.WithTransportCredentials(creds))
}

func (o connOptions) transport() transports.GeyserTransport {
	var callOpts []grpc.CallOption
	if o.token != "" {
		callOpts = append(callOpts, auth.PerRPC(o.token, o.tls))
	}
	return transports.NewGrpcTransport(o.dial, callOpts...)
}

// decodedUpdate renders an update for terminal output: keys in base58 and
// account data in base64.
func decodedUpdate(u transports.Update) map[string]any {
	out := map[string]any{
		"category": u.Category,
		"ts":       u.Ts,
	}
	switch p := u.Payload.(type) {
	case nil:
		out["heartbeat"] = true
	case *geyserv1.AccountUpdate:
		acc := map[string]any{
			"slot":            p.Slot,
			"pubkey":          base58.Encode(p.Pubkey),
			"owner":           base58.Encode(p.Owner),
			"lamports":        p.Lamports,
			"executable":      p.IsExecutable,
			"rent_epoch":      p.RentEpoch,
			"seq":             p.Seq,
			"is_startup":      p.IsStartup,
			"data_len":        len(p.Data),
			"replica_version": p.ReplicaVersion,
		}
		if len(p.Data) > 0 {
			acc["data_b64"] = base64.StdEncoding.EncodeToString(p.Data)
		}
		if p.TxSignature != nil {
			acc["tx_signature"] = *p.TxSignature
		}
		out["account"] = acc
	case *geyserv1.SlotUpdate:
		slot := map[string]any{"slot": p.Slot, "status": p.Status.String()}
		if p.ParentSlot != nil {
			slot["parent_slot"] = *p.ParentSlot
		}
		out["slot"] = slot
	case *geyserv1.SlotEntryUpdate:
		out["entry"] = p
	case *geyserv1.BlockUpdate:
		out["block"] = p
	case *geyserv1.TransactionUpdate:
		tx := map[string]any{
			"slot":      p.Slot,
			"signature": p.Signature,
			"is_vote":   p.IsVote,
		}
		if p.TxIdx != geyserv1.TxIndexUnknown {
			tx["tx_idx"] = p.TxIdx
		}
		if p.Tx != nil && p.Tx.Meta != nil {
			tx["failed"] = p.Tx.Meta.Err != nil
			tx["fee"] = p.Tx.Meta.Fee
		}
		out["transaction"] = tx
	default:
		out["payload"] = p
	}
	return out
}
