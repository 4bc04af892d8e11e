// Command seed fills the comment store with demo threads for local development.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"digitalaxis/internal/config"
	"digitalaxis/internal/db"
	"digitalaxis/internal/models"
	"digitalaxis/internal/utils"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type seedOptions struct {
	Posts        []string
	Threads      int     // 每篇文章的顶层评论数
	MaxDepth     int     // 回复最大深度
	MaxReplies   int     // 每条评论最多回复数
	PendingRatio float64 // 待审核比例
	Admin        string  // 站长回复使用的名字
}

func main() {
	posts := flag.String("posts", "hello-world,getting-started", "Comma separated post slugs")
	threads := flag.Int("threads", 5, "Top-level comments per post")
	depth := flag.Int("depth", 3, "Maximum reply depth")
	replies := flag.Int("replies", 3, "Maximum replies per comment")
	pending := flag.Float64("pending", 0.2, "Share of comments left pending")
	clean := flag.Bool("clean", false, "Delete existing comments first")
	hash := flag.String("hash-password", "", "Print the bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	flag.Parse()

	if *hash != "" {
		h, err := utils.HashPassword(*hash)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		fmt.Println(h)
		return
	}

	log.Println("🌱 Comment Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	conn, err := db.Connect(cfg.DatabaseURL, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *clean {
		if err := conn.Where("1 = 1").Delete(&models.Comment{}).Error; err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	gofakeit.Seed(time.Now().UnixNano())
	comments := generate(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), time.Now(), seedOptions{
		Posts:        splitSlugs(*posts),
		Threads:      *threads,
		MaxDepth:     *depth,
		MaxReplies:   *replies,
		PendingRatio: *pending,
		Admin:        cfg.SiteAuthor,
	})

	if err := conn.CreateInBatches(&comments, 100).Error; err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Printf("✨ Created %d comments across %d posts", len(comments), len(splitSlugs(*posts)))
}

func splitSlugs(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if slug := utils.Slugify(part); slug != "" {
			out = append(out, slug)
		}
	}
	return out
}

// generate 生成若干评论树。子评论的时间总是晚于父评论
func generate(r *rand.Rand, now time.Time, opts seedOptions) []models.Comment {
	out := make([]models.Comment, 0)

	type frame struct {
		parent models.Comment
		depth  int
	}

	for _, slug := range opts.Posts {
		for range opts.Threads {
			created := now.Add(-time.Duration(r.IntN(30*24)+1) * time.Hour)
			root := fakeComment(r, slug, created, opts.PendingRatio)
			out = append(out, root)

			stack := []frame{{parent: root, depth: 0}}
			for len(stack) > 0 {
				f := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if f.depth >= opts.MaxDepth {
					continue
				}
				p := f.parent
				for range r.IntN(opts.MaxReplies + 1) {
					at := p.CreatedAt.Add(time.Duration(r.IntN(600)+1) * time.Minute)
					if at.After(now) {
						at = now
					}
					reply := fakeComment(r, slug, at, opts.PendingRatio)
					parentID := p.ID
					reply.ParentID = &parentID
					reply.MentionedUser = p.Author
					if opts.Admin != "" && r.IntN(5) == 0 {
						reply.Author = opts.Admin
						reply.Email = ""
						reply.IsAdmin = true
						reply.Approved = true
					}
					out = append(out, reply)
					stack = append(stack, frame{parent: reply, depth: f.depth + 1})
				}
			}
		}
	}
	return out
}

func fakeComment(r *rand.Rand, slug string, at time.Time, pendingRatio float64) models.Comment {
	return models.Comment{
		ID:        uuid.NewString(),
		PostSlug:  slug,
		Author:    gofakeit.Name(),
		Email:     strings.ToLower(gofakeit.Email()),
		Content:   gofakeit.Paragraph(1, r.IntN(3)+1, 12, "\n"),
		CreatedAt: at.UTC(),
		Approved:  r.Float64() >= pendingRatio,
	}
}
