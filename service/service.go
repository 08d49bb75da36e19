// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package service exposes the rollup node over JSON-RPC.
package service

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/gorilla/rpc/v2"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/rollupvm/chain"
	"github.com/ava-labs/rollupvm/mempool"
	"github.com/ava-labs/rollupvm/producer"
	"github.com/ava-labs/rollupvm/state"
	"github.com/ava-labs/rollupvm/store"
	"github.com/ava-labs/rollupvm/types"
)

// Name of the service; methods are called as "rollup.<method>".
const Name = "rollup"

var (
	errNoProducer   = errors.New("block production is disabled")
	errNotCanonical = errors.New("no canonical block at number")
)

// Service is the API service of the rollup node
type Service struct {
	chain    *chain.Chain
	pool     *mempool.Mempool
	producer *producer.Producer
	log      log.Logger

	// serializes produce and sync
	produceLock sync.Mutex
}

// New returns the service. [p] may be nil on nodes that only follow L1.
func New(c *chain.Chain, pool *mempool.Mempool, p *producer.Producer, logger log.Logger) *Service {
	return &Service{
		chain:    c,
		pool:     pool,
		producer: p,
		log:      logger,
	}
}

// NewHandler returns the JSON-RPC handler serving [s].
func NewHandler(s *Service) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	if err := server.RegisterService(s, Name); err != nil {
		return nil, err
	}
	return server, nil
}

type GetTipBlockHashReply struct {
	BlockHash ids.ID      `json:"blockHash"`
	Number    json.Uint64 `json:"number"`
}

// GetTipBlockHash returns the hash of the tip block.
func (s *Service) GetTipBlockHash(_ *http.Request, _ *struct{}, reply *GetTipBlockHashReply) error {
	tip := s.chain.Store().TipVersion()
	reply.BlockHash = tip.TipBlockHash
	reply.Number = json.Uint64(tip.BlockCount - 1)
	return nil
}

// GetBlockArgs selects a block by hash or, when [BlockHash] is empty, by
// canonical number. Neither set means the tip.
type GetBlockArgs struct {
	BlockHash ids.ID       `json:"blockHash"`
	Number    *json.Uint64 `json:"number"`
}

type GetBlockReply struct {
	Block *types.L2Block `json:"block"`
	// Bytes is the hex codec encoding of the block.
	Bytes string `json:"bytes"`
}

// GetBlock gets the block selected by [args]
func (s *Service) GetBlock(_ *http.Request, args *GetBlockArgs, reply *GetBlockReply) error {
	st := s.chain.Store()
	blkID := args.BlockHash
	if blkID == ids.Empty {
		tip := st.TipVersion()
		blkID = tip.TipBlockHash
		if args.Number != nil {
			view, err := st.Checkout(tip.ID)
			if err != nil {
				return err
			}
			defer view.Discard()

			var ok bool
			blkID, ok, err = view.GetBlockHashByNumber(uint64(*args.Number))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %d", errNotCanonical, *args.Number)
			}
		}
	}

	blk, err := st.GetBlock(blkID)
	if err != nil {
		return err
	}
	bytes, err := types.Marshal(blk)
	if err != nil {
		return err
	}
	reply.Block = blk
	reply.Bytes, err = formatting.Encode(formatting.Hex, bytes)
	return err
}

type GetBalanceArgs struct {
	AccountID json.Uint32 `json:"accountID"`
	// SUDTID defaults to the CKB token.
	SUDTID *json.Uint32 `json:"sudtID,omitempty"`
}

type GetBalanceReply struct {
	// decimal
	Balance string `json:"balance"`
}

// GetBalance returns the sUDT balance of an account at the tip.
func (s *Service) GetBalance(_ *http.Request, args *GetBalanceArgs, reply *GetBalanceReply) error {
	view, err := s.tipView()
	if err != nil {
		return err
	}
	defer view.Discard()

	sudtID := types.CKBSUDTAccountID
	if args.SUDTID != nil {
		sudtID = uint32(*args.SUDTID)
	}
	balance, err := state.GetBalance(view, sudtID, uint32(args.AccountID))
	if err != nil {
		return err
	}
	reply.Balance = balance.ToBig().String()
	return nil
}

type AccountArgs struct {
	AccountID json.Uint32 `json:"accountID"`
}

type GetNonceReply struct {
	Nonce json.Uint32 `json:"nonce"`
}

// GetNonce returns the nonce of an account at the tip.
func (s *Service) GetNonce(_ *http.Request, args *AccountArgs, reply *GetNonceReply) error {
	view, err := s.tipView()
	if err != nil {
		return err
	}
	defer view.Discard()

	nonce, err := state.GetNonce(view, uint32(args.AccountID))
	reply.Nonce = json.Uint32(nonce)
	return err
}

// GetGlobalState returns the commitment to the tip.
func (s *Service) GetGlobalState(_ *http.Request, _ *struct{}, reply *types.GlobalState) error {
	*reply = s.chain.GlobalState()
	return nil
}

// SubmitArgs carries hex codec bytes.
type SubmitArgs struct {
	Data string `json:"data"`
}

type SubmitReply struct {
	Hash ids.ID `json:"hash"`
}

// SubmitTransaction adds a transaction to the mempool.
func (s *Service) SubmitTransaction(_ *http.Request, args *SubmitArgs, reply *SubmitReply) error {
	tx := &types.L2Transaction{}
	if err := decode(args.Data, tx); err != nil {
		return err
	}
	if err := s.pool.PushTransaction(tx); err != nil {
		return err
	}
	reply.Hash = tx.Hash()
	s.log.Debug("transaction submitted", "hash", reply.Hash, "from", tx.Raw.FromID, "nonce", tx.Raw.Nonce)
	return nil
}

// SubmitWithdrawal adds a withdrawal request to the mempool.
func (s *Service) SubmitWithdrawal(_ *http.Request, args *SubmitArgs, reply *SubmitReply) error {
	req := &types.WithdrawalRequest{}
	if err := decode(args.Data, req); err != nil {
		return err
	}
	if err := s.pool.PushWithdrawal(req); err != nil {
		return err
	}
	reply.Hash = req.Hash()
	s.log.Debug("withdrawal submitted", "hash", reply.Hash, "nonce", req.Raw.Nonce)
	return nil
}

type ProduceBlockArgs struct {
	Deposits []types.DepositionRequest `json:"deposits"`
}

type ProduceBlockReply struct {
	BlockHash ids.ID      `json:"blockHash"`
	Number    json.Uint64 `json:"number"`
	Event     string      `json:"event"`
}

// ProduceBlock builds a block from the mempool and submits it to the local
// chain as if it was included on L1.
func (s *Service) ProduceBlock(_ *http.Request, args *ProduceBlockArgs, reply *ProduceBlockReply) error {
	if s.producer == nil {
		return errNoProducer
	}

	s.produceLock.Lock()
	defer s.produceLock.Unlock()

	result, err := s.producer.Produce(args.Deposits)
	if err != nil {
		return err
	}
	blkBytes, err := types.Marshal(result.Block)
	if err != nil {
		return err
	}
	globalStateBytes, err := types.Marshal(&result.GlobalState)
	if err != nil {
		return err
	}
	event, err := s.chain.Sync(&chain.SyncParam{
		Updates: []chain.L1Action{{
			Transaction: chain.L1Transaction{
				Block:       blkBytes,
				GlobalState: globalStateBytes,
			},
			HeaderInfo: types.HeaderInfo{Number: result.Block.Number()},
			Context:    &chain.SubmitTxs{Deposits: result.Deposits},
		}},
	})
	if err != nil {
		return err
	}

	reply.BlockHash = result.Block.Hash()
	reply.Number = json.Uint64(result.Block.Number())
	reply.Event = event.Kind.String()
	return nil
}

func (s *Service) tipView() (*store.Transaction, error) {
	st := s.chain.Store()
	return st.Checkout(st.TipVersion().ID)
}

func decode(data string, v interface{}) error {
	bytes, err := formatting.Decode(formatting.Hex, data)
	if err != nil {
		return err
	}
	return types.Unmarshal(bytes, v)
}
