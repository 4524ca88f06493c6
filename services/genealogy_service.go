package services

import (
	"time"

	"catasto_app_go/models"

	"gorm.io/gorm"
)

const maxGenealogyDepth = 20

// GenealogyNode is one partita reached through the variazioni ledger.
// Livello is negative for ancestors, positive for descendants and zero for the root.
type GenealogyNode struct {
	PartitaID       uint       `json:"partita_id"`
	ComuneID        uint       `json:"comune_id"`
	NumeroPartita   int        `json:"numero_partita"`
	SuffissoPartita string     `json:"suffisso_partita"`
	Stato           string     `json:"stato"`
	Livello         int        `json:"livello"`
	VariazioneID    *uint      `json:"variazione_id,omitempty"`
	TipoVariazione  string     `json:"tipo_variazione,omitempty"`
	DataVariazione  *time.Time `json:"data_variazione,omitempty"`
}

// GetPartitaGenealogy walks the ledger from a partita towards its ancestors
// and its descendants, up to maxDepth steps each way.
func GetPartitaGenealogy(db *gorm.DB, partitaID uint, maxDepth int) ([]GenealogyNode, error) {
	if maxDepth <= 0 || maxDepth > maxGenealogyDepth {
		maxDepth = maxGenealogyDepth
	}
	root, err := GetPartita(db, partitaID)
	if err != nil {
		return nil, err
	}

	nodes := []GenealogyNode{nodeFor(root, 0, nil)}
	visited := map[uint]bool{root.ID: true}

	ancestors, err := walkGenealogy(db, root.ID, maxDepth, -1, visited)
	if err != nil {
		return nil, err
	}
	descendants, err := walkGenealogy(db, root.ID, maxDepth, 1, visited)
	if err != nil {
		return nil, err
	}

	nodes = append(ancestors, nodes...)
	return append(nodes, descendants...), nil
}

// walkGenealogy does a breadth-first walk; direction -1 follows destination→origin edges
func walkGenealogy(db *gorm.DB, startID uint, maxDepth, direction int, visited map[uint]bool) ([]GenealogyNode, error) {
	var nodes []GenealogyNode
	frontier := []uint{startID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var edges []models.Variazione
		query := db.Order("data_variazione ASC, id ASC")
		if direction < 0 {
			query = query.Where("partita_destinazione_id IN ?", frontier)
		} else {
			query = query.Where("partita_origine_id IN ? AND partita_destinazione_id IS NOT NULL", frontier)
		}
		if err := query.Find(&edges).Error; err != nil {
			return nil, err
		}

		var next []uint
		for i := range edges {
			edge := edges[i]
			targetID := edge.PartitaOrigineID
			if direction > 0 {
				targetID = *edge.PartitaDestinazioneID
			}
			if visited[targetID] {
				continue
			}
			visited[targetID] = true

			partita, err := GetPartita(db, targetID)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, nodeFor(partita, direction*depth, &edge))
			next = append(next, targetID)
		}
		frontier = next
	}

	if direction < 0 {
		// Oldest ancestors first
		for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
			nodes[i], nodes[j] = nodes[j], nodes[i]
		}
	}
	return nodes, nil
}

func nodeFor(p *models.Partita, livello int, edge *models.Variazione) GenealogyNode {
	node := GenealogyNode{
		PartitaID:       p.ID,
		ComuneID:        p.ComuneID,
		NumeroPartita:   p.NumeroPartita,
		SuffissoPartita: p.SuffissoPartita,
		Stato:           p.Stato,
		Livello:         livello,
	}
	if edge != nil {
		id := edge.ID
		data := edge.DataVariazione
		node.VariazioneID = &id
		node.TipoVariazione = edge.Tipo
		node.DataVariazione = &data
	}
	return node
}
