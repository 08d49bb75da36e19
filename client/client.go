// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"errors"
	"math/big"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/ava-labs/rollupvm/service"
	"github.com/ava-labs/rollupvm/types"
)

var errBadBalance = errors.New("balance is not a decimal number")

// Client defines rollup node client operations.
type Client interface {
	// GetTipBlockHash returns the hash and number of the tip block
	GetTipBlockHash(ctx context.Context) (ids.ID, uint64, error)

	// GetBlock fetches a block by hash. The empty ID fetches the tip.
	GetBlock(ctx context.Context, blockHash ids.ID) (*types.L2Block, error)

	// GetBlockByNumber fetches the canonical block at [number].
	GetBlockByNumber(ctx context.Context, number uint64) (*types.L2Block, error)

	GetBalance(ctx context.Context, sudtID, accountID uint32) (*big.Int, error)
	GetNonce(ctx context.Context, accountID uint32) (uint32, error)
	GetGlobalState(ctx context.Context) (*types.GlobalState, error)

	// SubmitTransaction adds [tx] to the node mempool and returns its hash
	SubmitTransaction(ctx context.Context, tx *types.L2Transaction) (ids.ID, error)
	SubmitWithdrawal(ctx context.Context, req *types.WithdrawalRequest) (ids.ID, error)

	// ProduceBlock asks the node to build and apply a block. It returns the
	// block hash and the sync outcome.
	ProduceBlock(ctx context.Context, deposits []types.DepositionRequest) (ids.ID, string, error)
}

// New creates a new client object.
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) method(name string) string {
	return service.Name + "." + name
}

func (cli *client) GetTipBlockHash(ctx context.Context) (ids.ID, uint64, error) {
	resp := new(service.GetTipBlockHashReply)
	err := cli.req.SendRequest(ctx,
		cli.method("getTipBlockHash"),
		&struct{}{},
		resp,
	)
	return resp.BlockHash, uint64(resp.Number), err
}

func (cli *client) getBlock(ctx context.Context, args *service.GetBlockArgs) (*types.L2Block, error) {
	resp := new(service.GetBlockReply)
	err := cli.req.SendRequest(ctx,
		cli.method("getBlock"),
		args,
		resp,
	)
	if err != nil {
		return nil, err
	}
	bytes, err := formatting.Decode(formatting.Hex, resp.Bytes)
	if err != nil {
		return nil, err
	}
	return types.ParseBlock(bytes)
}

func (cli *client) GetBlock(ctx context.Context, blockHash ids.ID) (*types.L2Block, error) {
	return cli.getBlock(ctx, &service.GetBlockArgs{BlockHash: blockHash})
}

func (cli *client) GetBlockByNumber(ctx context.Context, number uint64) (*types.L2Block, error) {
	n := json.Uint64(number)
	return cli.getBlock(ctx, &service.GetBlockArgs{Number: &n})
}

func (cli *client) GetBalance(ctx context.Context, sudtID, accountID uint32) (*big.Int, error) {
	resp := new(service.GetBalanceReply)
	sudt := json.Uint32(sudtID)
	err := cli.req.SendRequest(ctx,
		cli.method("getBalance"),
		&service.GetBalanceArgs{
			AccountID: json.Uint32(accountID),
			SUDTID:    &sudt,
		},
		resp,
	)
	if err != nil {
		return nil, err
	}
	balance, ok := new(big.Int).SetString(resp.Balance, 10)
	if !ok {
		return nil, errBadBalance
	}
	return balance, nil
}

func (cli *client) GetNonce(ctx context.Context, accountID uint32) (uint32, error) {
	resp := new(service.GetNonceReply)
	err := cli.req.SendRequest(ctx,
		cli.method("getNonce"),
		&service.AccountArgs{AccountID: json.Uint32(accountID)},
		resp,
	)
	return uint32(resp.Nonce), err
}

func (cli *client) GetGlobalState(ctx context.Context) (*types.GlobalState, error) {
	resp := new(types.GlobalState)
	return resp, cli.req.SendRequest(ctx,
		cli.method("getGlobalState"),
		&struct{}{},
		resp,
	)
}

func (cli *client) submit(ctx context.Context, method string, v interface{}) (ids.ID, error) {
	bytes, err := types.Marshal(v)
	if err != nil {
		return ids.Empty, err
	}
	data, err := formatting.Encode(formatting.Hex, bytes)
	if err != nil {
		return ids.Empty, err
	}

	resp := new(service.SubmitReply)
	err = cli.req.SendRequest(ctx,
		cli.method(method),
		&service.SubmitArgs{Data: data},
		resp,
	)
	return resp.Hash, err
}

func (cli *client) SubmitTransaction(ctx context.Context, tx *types.L2Transaction) (ids.ID, error) {
	return cli.submit(ctx, "submitTransaction", tx)
}

func (cli *client) SubmitWithdrawal(ctx context.Context, req *types.WithdrawalRequest) (ids.ID, error) {
	return cli.submit(ctx, "submitWithdrawal", req)
}

func (cli *client) ProduceBlock(ctx context.Context, deposits []types.DepositionRequest) (ids.ID, string, error) {
	resp := new(service.ProduceBlockReply)
	err := cli.req.SendRequest(ctx,
		cli.method("produceBlock"),
		&service.ProduceBlockArgs{Deposits: deposits},
		resp,
	)
	return resp.BlockHash, resp.Event, err
}
