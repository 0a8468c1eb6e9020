package service

import (
	"studysync_backend/internal/repository"
	"studysync_backend/pkg/api"
)

const (
	NodeUpload       = "upload"
	NodeFlashcardSet = "flashcardSet"
	NodeQuiz         = "quiz"

	EdgeGenerated = "generated"
	EdgeDerived   = "derived"
)

type KnowledgeGraphService struct {
	Uploads    *repository.UploadRepository
	Flashcards *repository.FlashcardRepository
	Quizzes    *repository.QuizRepository
}

func NewKnowledgeGraphService(uploads *repository.UploadRepository, flashcards *repository.FlashcardRepository, quizzes *repository.QuizRepository) *KnowledgeGraphService {
	return &KnowledgeGraphService{Uploads: uploads, Flashcards: flashcards, Quizzes: quizzes}
}

// Build 资料 -> 生成的卡片集/测验，卡片集 -> 由其派生的测验。
// 指向已删除节点的边会被丢弃。
func (s *KnowledgeGraphService) Build(userID string) (*api.KnowledgeGraph, error) {
	uploads, err := s.Uploads.FindAllByUser(userID)
	if err != nil {
		return nil, err
	}
	sets, err := s.Flashcards.FindAllByUser(userID)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.Quizzes.FindAllByUser(userID)
	if err != nil {
		return nil, err
	}

	g := &api.KnowledgeGraph{Nodes: []api.GraphNode{}, Edges: []api.GraphEdge{}}
	known := make(map[string]bool)
	for _, u := range uploads {
		g.Nodes = append(g.Nodes, api.GraphNode{ID: u.ID, Kind: NodeUpload, Label: u.OriginalName})
		known[u.ID] = true
	}
	for _, fs := range sets {
		g.Nodes = append(g.Nodes, api.GraphNode{ID: fs.ID, Kind: NodeFlashcardSet, Label: fs.Title})
		known[fs.ID] = true
	}
	for _, q := range quizzes {
		g.Nodes = append(g.Nodes, api.GraphNode{ID: q.ID, Kind: NodeQuiz, Label: q.Title})
		known[q.ID] = true
	}

	link := func(from *string, to, kind string) {
		if from != nil && known[*from] {
			g.Edges = append(g.Edges, api.GraphEdge{From: *from, To: to, Kind: kind})
		}
	}
	for _, fs := range sets {
		link(fs.UploadID, fs.ID, EdgeGenerated)
	}
	for _, q := range quizzes {
		link(q.UploadID, q.ID, EdgeGenerated)
		link(q.FlashcardSetID, q.ID, EdgeDerived)
	}
	return g, nil
}
