// Package forum exposes the forum engine and ledger reads over gRPC.
package forum

import (
	"context"
	"errors"
	"log"

	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/agoraledger/forum/internal/platform/errors"
	"github.com/agoraledger/forum/internal/platform/grpc/pagination"
	"github.com/agoraledger/forum/internal/platform/requestctx"
	grpcmeta "github.com/agoraledger/forum/internal/services/forum/api/grpc/metadata"
	"github.com/agoraledger/forum/internal/services/forum/core/filter"
	"github.com/agoraledger/forum/internal/services/forum/domain/command"
	"github.com/agoraledger/forum/internal/services/forum/domain/engine"
	domain "github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/storage"
)

var eventPageSize = pagination.PageSizeConfig{
	Default: storage.DefaultEventPageSize,
	Max:     storage.MaxEventPageSize,
}

// Executor runs commands.
type Executor interface {
	Execute(ctx context.Context, cmd command.Command) (engine.Result, error)
}

// Service implements ForumServer.
type Service struct {
	exec   Executor
	ledger storage.Ledger
}

var _ ForumServer = (*Service)(nil)

// NewService returns a service that runs commands through exec and serves
// reads from ledger.
func NewService(exec Executor, ledger storage.Ledger) *Service {
	return &Service{exec: exec, ledger: ledger}
}

type commandResponse struct {
	Seq       uint64      `json:"seq"`
	ChainHash string      `json:"chain_hash"`
	Events    []eventView `json:"events"`
}

// fail converts err into a gRPC status localized for the caller.
func fail(ctx context.Context, err error) error {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) && !errors.Is(err, context.Canceled) {
		log.Printf("forum request %s failed: %v", grpcmeta.RequestIDFromContext(ctx), err)
	}
	return apperrors.HandleError(err, grpcmeta.LocaleFromContext(ctx))
}

func (s *Service) run(ctx context.Context, typ command.Type, in *structpb.Struct) (*structpb.Struct, error) {
	account, ok := requestctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, fail(ctx, apperrors.New(apperrors.CodeCallerUnauthenticated, "caller account is required"))
	}
	payload, err := requestJSON(in)
	if err != nil {
		return nil, fail(ctx, err)
	}
	res, err := s.exec.Execute(ctx, command.Command{
		Type:        typ,
		ActorID:     account,
		RequestID:   grpcmeta.RequestIDFromContext(ctx),
		PayloadJSON: payload,
	})
	if err != nil {
		return nil, fail(ctx, err)
	}
	out, err := toStruct(commandResponse{
		Seq:       res.Head.Seq,
		ChainHash: res.Head.ChainHash,
		Events:    viewEvents(res.Decision.Events),
	})
	if err != nil {
		return nil, fail(ctx, err)
	}
	return out, nil
}

// SetForumSudo implements ForumServer.
func (s *Service) SetForumSudo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.run(ctx, command.TypeSetForumSudo, in)
}

// CreateCategory implements ForumServer.
func (s *Service) CreateCategory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.run(ctx, command.TypeCreateCategory, in)
}

// UpdateCategory implements ForumServer.
func (s *Service) UpdateCategory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.run(ctx, command.TypeUpdateCategory, in)
}

// CreateThread implements ForumServer.
func (s *Service) CreateThread(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.run(ctx, command.TypeCreateThread, in)
}

// ModerateThread implements ForumServer.
func (s *Service) ModerateThread(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.run(ctx, command.TypeModerateThread, in)
}

// AddPost implements ForumServer.
func (s *Service) AddPost(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.run(ctx, command.TypeAddPost, in)
}

// EditPostText implements ForumServer.
func (s *Service) EditPostText(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.run(ctx, command.TypeEditPostText, in)
}

// ModeratePost implements ForumServer.
func (s *Service) ModeratePost(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.run(ctx, command.TypeModeratePost, in)
}

// read runs fn against a snapshot and renders its result.
func (s *Service) read(ctx context.Context, fn func(domain.Reader) (any, error)) (*structpb.Struct, error) {
	var result any
	err := s.ledger.View(ctx, func(r domain.Reader) error {
		var err error
		result, err = fn(r)
		return err
	})
	if err != nil {
		return nil, fail(ctx, err)
	}
	out, err := toStruct(result)
	if err != nil {
		return nil, fail(ctx, err)
	}
	return out, nil
}

// GetCategory implements ForumServer.
func (s *Service) GetCategory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		CategoryID domain.CategoryID `json:"category_id"`
	}
	if err := decodeRequest(in, &req); err != nil {
		return nil, fail(ctx, err)
	}
	return s.read(ctx, func(r domain.Reader) (any, error) {
		c, ok, err := r.Category(req.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.CategoryNotFound(req.CategoryID)
		}
		depth, err := domain.CategoryDepth(r, c.ID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"category": c, "depth": depth}, nil
	})
}

// GetThread implements ForumServer.
func (s *Service) GetThread(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		ThreadID domain.ThreadID `json:"thread_id"`
	}
	if err := decodeRequest(in, &req); err != nil {
		return nil, fail(ctx, err)
	}
	return s.read(ctx, func(r domain.Reader) (any, error) {
		t, ok, err := r.Thread(req.ThreadID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ThreadNotFound(req.ThreadID)
		}
		return map[string]any{"thread": t}, nil
	})
}

// GetPost implements ForumServer.
func (s *Service) GetPost(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		PostID domain.PostID `json:"post_id"`
	}
	if err := decodeRequest(in, &req); err != nil {
		return nil, fail(ctx, err)
	}
	return s.read(ctx, func(r domain.Reader) (any, error) {
		p, ok, err := r.Post(req.PostID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.PostNotFound(req.PostID)
		}
		return map[string]any{"post": p}, nil
	})
}

// GetForumSudo implements ForumServer.
func (s *Service) GetForumSudo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := decodeRequest(in, &struct{}{}); err != nil {
		return nil, fail(ctx, err)
	}
	return s.read(ctx, func(r domain.Reader) (any, error) {
		sudo, ok, err := r.ForumSudo()
		if err != nil {
			return nil, err
		}
		if !ok {
			return map[string]any{"set": false}, nil
		}
		return map[string]any{"set": true, "sudo": sudo}, nil
	})
}

type listEventsRequest struct {
	PageSize  int32  `json:"page_size"`
	PageToken string `json:"page_token"`
	Filter    string `json:"filter"`
}

type listEventsResponse struct {
	Events        []eventView `json:"events"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

// ListEvents implements ForumServer.
func (s *Service) ListEvents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req listEventsRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, fail(ctx, err)
	}
	afterSeq, err := pagination.DecodeSeqToken(req.PageToken)
	if err != nil {
		return nil, fail(ctx, apperrors.Wrap(apperrors.CodeCommandInvalid, "invalid page token", err))
	}
	if _, err := filter.Parse(req.Filter); err != nil {
		return nil, fail(ctx, apperrors.Wrap(apperrors.CodeCommandInvalid, err.Error(), err))
	}

	page, err := s.ledger.ListEvents(ctx, storage.ListEventsRequest{
		AfterSeq: afterSeq,
		Limit:    pagination.ClampPageSize(req.PageSize, eventPageSize),
		Filter:   req.Filter,
	})
	if err != nil {
		return nil, fail(ctx, err)
	}
	resp := listEventsResponse{Events: viewEvents(page.Events)}
	if page.HasMore && len(page.Events) > 0 {
		resp.NextPageToken = pagination.EncodeSeqToken(page.Events[len(page.Events)-1].Seq)
	}
	out, err := toStruct(resp)
	if err != nil {
		return nil, fail(ctx, err)
	}
	return out, nil
}
